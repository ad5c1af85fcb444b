package steam

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
)

// maxImageHeaderBytes bounds how much of an image is read to find its
// dimensions.
const maxImageHeaderBytes = 1 << 20

// ImageSize reports the pixel dimensions of the image at src. Only the
// header is decoded.
func (s *Source) ImageSize(ctx context.Context, src string) (int, int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, 0, fmt.Errorf("wait for rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "noxbot/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	cfg, _, err := image.DecodeConfig(io.LimitReader(resp.Body, maxImageHeaderBytes))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
