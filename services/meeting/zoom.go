package meetingsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const (
	oauthTokenURL = "https://zoom.us/oauth/token"

	meetingTypeScheduled = 2
)

type zoomService struct {
	baseURL      string
	accountID    string
	clientID     string
	clientSecret string
	client       *http.Client
	logger       core.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ core.MeetingService = (*zoomService)(nil)

func NewZoomService(logger core.Logger, conf *core.Config) *zoomService {
	return &zoomService{
		baseURL:      conf.Zoom.BaseURL,
		accountID:    conf.Zoom.AccountID,
		clientID:     conf.Zoom.ClientID,
		clientSecret: conf.Zoom.ClientSecret,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

// token returns a cached server-to-server OAuth access token, refreshing it
// shortly before expiry.
func (svc *zoomService) token(ctx context.Context) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.accessToken != "" && time.Now().Before(svc.tokenExpiry.Add(-time.Minute)) {
		return svc.accessToken, nil
	}

	q := make(url.Values)
	q.Set("grant_type", "account_credentials")
	q.Set("account_id", svc.accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oauthTokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(err, "preparing token request")
	}
	req.SetBasicAuth(svc.clientID, svc.clientSecret)

	res, err := svc.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "requesting access token")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("requesting access token - status: %d", res.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "decoding token response")
	}

	svc.accessToken = body.AccessToken
	svc.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return svc.accessToken, nil
}

func (svc *zoomService) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	token, err := svc.token(ctx)
	if err != nil {
		return err
	}

	var body *bytes.Buffer
	if payload != nil {
		body = new(bytes.Buffer)
		if err = json.NewEncoder(body).Encode(payload); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, svc.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "preparing request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("%s %s - status: %d", method, path, res.StatusCode)
	}
	if dest != nil {
		if err = json.NewDecoder(res.Body).Decode(dest); err != nil {
			return errors.Wrap(err, "decoding response body")
		}
	}
	return nil
}

func (svc *zoomService) CreateMeeting(ctx context.Context, topic string, start time.Time, duration time.Duration, opts core.MeetingOptions) (core.Meeting, error) {
	autoRecording := "none"
	if opts.AutoRecord {
		autoRecording = "cloud"
	}
	payload := map[string]interface{}{
		"topic":      topic,
		"type":       meetingTypeScheduled,
		"start_time": start.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   int(duration.Minutes()),
		"settings": map[string]interface{}{
			"auto_recording":    autoRecording,
			"waiting_room":      opts.WaitingRoom,
			"join_before_host":  opts.JoinBeforeHost,
			"mute_upon_entry":   opts.MuteUponEntry,
			"participant_video": opts.ParticipantVideo,
		},
	}

	var body struct {
		ID      int64  `json:"id"`
		JoinURL string `json:"join_url"`
	}
	if err := svc.do(ctx, http.MethodPost, "/users/me/meetings", payload, &body); err != nil {
		return core.Meeting{}, err
	}
	return core.Meeting{
		Ref:     fmt.Sprintf("%d", body.ID),
		JoinURL: body.JoinURL,
	}, nil
}

func (svc *zoomService) UpdateMeeting(ctx context.Context, ref string, start time.Time, duration time.Duration) error {
	payload := map[string]interface{}{
		"start_time": start.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   int(duration.Minutes()),
	}
	return svc.do(ctx, http.MethodPatch, "/meetings/"+ref, payload, nil)
}

func (svc *zoomService) DeleteMeeting(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return svc.do(ctx, http.MethodDelete, "/meetings/"+ref, nil, nil)
}

// recordingScheduler polls the provider for a completed session's cloud
// recordings and logs the share URLs once available.
type recordingScheduler struct {
	zoom   *zoomService
	delay  time.Duration
	logger core.Logger
}

var _ core.RecordingScheduler = (*recordingScheduler)(nil)

func NewRecordingScheduler(zoom *zoomService, logger core.Logger) *recordingScheduler {
	return &recordingScheduler{
		zoom:   zoom,
		delay:  5 * time.Minute, // cloud recordings take a while to process
		logger: logger,
	}
}

func (s *recordingScheduler) ScheduleFetch(sessionID, meetingRef string) {
	go func() {
		time.Sleep(s.delay)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		var body struct {
			ShareURL string `json:"share_url"`
		}
		if err := s.zoom.do(ctx, http.MethodGet, "/meetings/"+meetingRef+"/recordings", nil, &body); err != nil {
			s.logger.Warn(fmt.Sprintf("fetching recordings for session %s: %v", sessionID, err), err)
			return
		}
		s.logger.Info(fmt.Sprintf("session %s recording available: %s", sessionID, body.ShareURL))
	}()
}
