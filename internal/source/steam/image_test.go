package steam

import (
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
)

func (s *SourceTestSuite) serveImage(width, height int) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, image.NewGray(image.Rect(0, 0, width, height)))
	}
}

func (s *SourceTestSuite) TestImageSize() {
	s.serveImage(460, 215)

	width, height, err := s.source.ImageSize(context.Background(), s.server.URL+"/banner.png")

	s.Require().NoError(err)
	s.Equal(460, width)
	s.Equal(215, height)
}

func (s *SourceTestSuite) TestImageSize_NotAnImage() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>nope</html>")
	}

	_, _, err := s.source.ImageSize(context.Background(), s.server.URL+"/banner.png")

	s.Error(err)
}

func (s *SourceTestSuite) TestImageSize_BadStatus() {
	_, _, err := s.source.ImageSize(context.Background(), s.server.URL+"/missing.png")

	s.ErrorContains(err, "unexpected status: 404")
	s.Equal(int32(1), s.hits.Load())
}
