package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"careercraft/internal/domain"
	"careercraft/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleConsultation() *models.Consultation {
	return &models.Consultation{
		ID:          42,
		FullName:    "Asha <b>Rao</b>",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		MeetingDate: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		MeetingTime: "10:30",
		Status:      models.StatusPending,
	}
}

func TestConsultationConfirmation(t *testing.T) {
	msg, err := ConsultationConfirmation(sampleConsultation(), "CareerCraft", "https://meet.example.com/abc")
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", msg.To)
	assert.Contains(t, msg.Subject, "CareerCraft")
	assert.Contains(t, msg.HTML, "Monday, November 2, 2026")
	assert.Contains(t, msg.HTML, "https://meet.example.com/abc")
	assert.Contains(t, msg.HTML, "Asha &lt;b&gt;Rao&lt;/b&gt;")
	assert.Contains(t, msg.Text, "10:30")
}

func TestAdminConsultation(t *testing.T) {
	msg, err := AdminConsultation(sampleConsultation(), "ops@example.com")
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", msg.To)
	assert.Contains(t, msg.HTML, "42")
	assert.Contains(t, msg.Text, "9876543210")
}

func TestWelcome(t *testing.T) {
	msg, err := Welcome(&models.Registration{Email: "ravi@example.com"}, "CareerCraft", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", msg.To)
	assert.Contains(t, msg.HTML, "Valued User")
	assert.Contains(t, msg.HTML, "2026")
}

type stubSender struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *stubSender) Send(ctx context.Context, _ domain.Message) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return "id-1", nil
}

func TestDispatcher(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("AllSucceed", func(t *testing.T) {
		a, b := &stubSender{}, &stubSender{}
		d := NewDispatcher(time.Second, &logger)
		err := d.Dispatch(context.Background(), Job{Channel: "email", Sender: a}, Job{Channel: "email", Sender: b})
		assert.NoError(t, err)
		assert.Equal(t, int32(1), a.calls.Load())
		assert.Equal(t, int32(1), b.calls.Load())
	})

	t.Run("OneFailureDoesNotStopOther", func(t *testing.T) {
		bad := &stubSender{err: errors.New("rejected")}
		good := &stubSender{delay: 20 * time.Millisecond}
		d := NewDispatcher(time.Second, &logger)

		err := d.Dispatch(context.Background(), Job{Channel: "email", Sender: bad}, Job{Channel: "telegram", Sender: good})
		require.Error(t, err)
		assert.Equal(t, domain.KindNotification, domain.KindOf(err))
		assert.Equal(t, int32(1), good.calls.Load())
	})

	t.Run("EachJobTimesOut", func(t *testing.T) {
		slow := &stubSender{delay: time.Second}
		d := NewDispatcher(20*time.Millisecond, &logger)

		start := time.Now()
		err := d.Dispatch(context.Background(), Job{Channel: "email", Sender: slow})
		assert.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestSendGridSender(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := newSendGridSenderWithHost("SG.test", srv.URL, "hello@careercraft.example", "CareerCraft")
	id, err := s.Send(context.Background(), domain.Message{To: "asha@example.com", Subject: "Hi", HTML: "<p>Hi</p>", Text: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
	assert.Equal(t, "Hi", got["subject"])

	_, err = s.Send(context.Background(), domain.Message{})
	assert.Error(t, err)
}

func TestSendGridSenderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := newSendGridSenderWithHost("SG.bad", srv.URL, "hello@careercraft.example", "CareerCraft")
	_, err := s.Send(context.Background(), domain.Message{To: "a@b.co", Subject: "x", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

type mockBot struct {
	mock.Mock
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestTelegramSender(t *testing.T) {
	bot := new(mockBot)
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 100 && msg.Text == "New Consultation\n\nbody"
	})).Return(tgbotapi.Message{MessageID: 7}, nil).Once()
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 200
	})).Return(tgbotapi.Message{}, errors.New("chat not found")).Once()

	s := NewTelegramSender(bot, []int64{100, 200})
	_, err := s.Send(context.Background(), domain.Message{Subject: "New Consultation", Text: "body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "200")
	bot.AssertExpectations(t)

	_, err = NewTelegramSender(bot, nil).Send(context.Background(), domain.Message{Text: "x"})
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	logger := zerolog.Nop()
	s := NewLogSender(&logger)
	id1, err := s.Send(context.Background(), domain.Message{To: "a@b.co"})
	require.NoError(t, err)
	id2, _ := s.Send(context.Background(), domain.Message{To: "a@b.co"})
	assert.NotEqual(t, id1, id2)
}
