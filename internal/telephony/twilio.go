package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-gateway/internal/apperr"
	"voice-gateway/internal/config"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioProvider places and terminates PSTN calls through the Twilio REST API.
//
// Missing credentials do not fail construction; every call reports the
// provider as unavailable instead.
type TwilioProvider struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioProvider(cfg config.TwilioConfig, httpClient *http.Client) *TwilioProvider {
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TwilioProvider{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) configured() error {
	if p.accountSID == "" || p.authToken == "" {
		return apperr.Unavailable("telephony provider not configured")
	}
	return nil
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (Call, error) {
	if err := p.configured(); err != nil {
		return Call{}, err
	}
	if req.To == "" {
		return Call{}, apperr.Validation("Phone number required")
	}
	if req.From == "" {
		return Call{}, apperr.Unavailable("outbound caller number not configured")
	}

	data := url.Values{}
	data.Set("To", req.To)
	data.Set("From", req.From)
	if req.TwiMLURL != "" {
		data.Set("Url", req.TwiMLURL)
	}

	var call Call
	if err := p.post(ctx, p.callsEndpoint(""), data, &call); err != nil {
		return Call{}, err
	}
	return call, nil
}

// EndCall hangs up an in-progress call by moving it to completed.
func (p *TwilioProvider) EndCall(ctx context.Context, callSID string) (Call, error) {
	if err := p.configured(); err != nil {
		return Call{}, err
	}
	if callSID == "" {
		return Call{}, apperr.Validation("Call SID required")
	}

	data := url.Values{}
	data.Set("Status", CallStatusCompleted)

	var call Call
	if err := p.post(ctx, p.callsEndpoint(callSID), data, &call); err != nil {
		return Call{}, err
	}
	return call, nil
}

func (p *TwilioProvider) callsEndpoint(callSID string) string {
	if callSID == "" {
		return fmt.Sprintf("%s/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	}
	return fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", p.baseURL, p.accountSID, url.PathEscape(callSID))
}

// TwilioError is the error document returned by the REST API.
type TwilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *TwilioError) Error() string {
	return e.Message
}

func (p *TwilioProvider) post(ctx context.Context, endpoint string, data url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperr.Upstream(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Upstream(err)
	}

	if resp.StatusCode >= 400 {
		var apiErr TwilioError
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
			return apperr.Upstream(fmt.Errorf("twilio: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		return apperr.Upstream(&apiErr)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return apperr.Upstream(fmt.Errorf("twilio: decode response: %w", err))
		}
	}
	return nil
}

// AsTwilioError extracts the REST error document, if any.
func AsTwilioError(err error) (*TwilioError, bool) {
	var te *TwilioError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
