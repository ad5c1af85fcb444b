package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/gaudesp/noxbot/internal/domain"
	"github.com/gaudesp/noxbot/testdata/utils"
)

type apiCall struct {
	method string
	params map[string]any
}

type TelegramTestSuite struct {
	suite.Suite
	server *httptest.Server
	status int

	mu    sync.Mutex
	calls []apiCall

	tg *Telegram
}

func (s *TelegramTestSuite) SetupTest() {
	s.calls = nil
	s.status = http.StatusOK

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		_ = json.NewDecoder(r.Body).Decode(&params)

		s.mu.Lock()
		s.calls = append(s.calls, apiCall{method: r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], params: params})
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked from the group chat"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-100123,"type":"supergroup"},"photo":[{"file_id":"AgAD","file_unique_id":"u1","width":320,"height":180}]}}`))
	}))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	tg, err := NewTelegram(TelegramConfig{Token: "123:abc", APIURL: s.server.URL}, logger)
	s.Require().NoError(err)
	s.tg = tg
}

func (s *TelegramTestSuite) TearDownTest() {
	s.server.Close()
}

func TestTelegramTestSuite(t *testing.T) {
	suite.Run(t, new(TelegramTestSuite))
}

func (s *TelegramTestSuite) notification() *domain.Notification {
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Notification{
		ChannelID:   "-100123",
		ArticleID:   "5123",
		Author:      "Team Fortress 2",
		Title:       "Maps & Fixes",
		URL:         "https://steam.test/5123",
		Description: "**Changes**\n- Fixed <crash>",
		PublishedAt: &published,
	}
}

func (s *TelegramTestSuite) TestDispatch_Text() {
	s.Require().NoError(s.tg.Dispatch(context.Background(), s.notification()))

	s.Require().Len(s.calls, 1)
	call := s.calls[0]
	s.Equal("sendMessage", call.method)
	s.Equal("-100123", call.params["chat_id"])
	s.Equal("HTML", call.params["parse_mode"])

	text, _ := call.params["text"].(string)
	s.Contains(text, `<b><a href="https://steam.test/5123">Maps &amp; Fixes</a></b>`)
	s.Contains(text, "<i>Team Fortress 2</i>")
	s.Contains(text, "<b>Changes</b>\n- Fixed &lt;crash&gt;")
	s.Contains(text, "2024-05-01 10:00 UTC")
}

func (s *TelegramTestSuite) TestDispatch_Photo() {
	n := s.notification()
	n.ImageURL = utils.Ptr("https://cdn.test/a.png")

	s.Require().NoError(s.tg.Dispatch(context.Background(), n))

	s.Require().Len(s.calls, 1)
	call := s.calls[0]
	s.Equal("sendPhoto", call.method)
	s.Equal("https://cdn.test/a.png", call.params["photo"])
	s.Contains(call.params["caption"], "Maps &amp; Fixes")
}

func (s *TelegramTestSuite) TestDispatch_APIError() {
	s.status = http.StatusForbidden

	err := s.tg.Dispatch(context.Background(), s.notification())

	var dispatchErr *domain.DispatchError
	s.Require().ErrorAs(err, &dispatchErr)
	s.Equal("-100123", dispatchErr.ChannelID)
}

func (s *TelegramTestSuite) TestDispatch_InvalidChatID() {
	n := s.notification()
	n.ChannelID = "general"

	err := s.tg.Dispatch(context.Background(), n)

	s.Error(err)
	s.Empty(s.calls)
}

func (s *TelegramTestSuite) TestDispatch_CanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.ErrorIs(s.tg.Dispatch(ctx, s.notification()), context.Canceled)
	s.Empty(s.calls)
}

func (s *TelegramTestSuite) TestNewTelegram_EmptyToken() {
	_, err := NewTelegram(TelegramConfig{}, slog.Default())
	s.Error(err)
}
