package translation

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Translator translates a single string between two language codes.
type Translator interface {
	Translate(ctx context.Context, query, from, to string) (string, error)
}

// Credentials identify a Baidu translation application.
type Credentials struct {
	AppID     string
	SecretKey string
}

// BaiduClient handles translation requests via the Baidu general translation API.
type BaiduClient struct {
	creds    Credentials
	endpoint string
	http     *resty.Client
	salt     func() string
}

// NewBaiduClient creates a new Baidu translation client.
func NewBaiduClient(creds Credentials, endpoint string, timeout time.Duration) *BaiduClient {
	return &BaiduClient{
		creds:    creds,
		endpoint: endpoint,
		http:     resty.New().SetTimeout(timeout),
		salt:     randomSalt,
	}
}

// --- Baidu API response types ---

type baiduResponse struct {
	From        string        `json:"from"`
	To          string        `json:"to"`
	TransResult []baiduResult `json:"trans_result"`
	ErrorCode   errorCode     `json:"error_code"`
	ErrorMsg    string        `json:"error_msg"`
}

type baiduResult struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// errorCode accepts both the quoted and bare numeric forms Baidu emits.
type errorCode string

func (c *errorCode) UnmarshalJSON(b []byte) error {
	*c = errorCode(strings.Trim(string(b), `"`))
	return nil
}

// APIError is returned when the response body carries an error_code.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("baidu API error %s: %s", e.Code, e.Message)
}

// Sign returns the request signature: md5 hex of appid + query + salt + key.
func Sign(creds Credentials, query, salt string) string {
	sum := md5.Sum([]byte(creds.AppID + query + salt + creds.SecretKey))
	return hex.EncodeToString(sum[:])
}

// Translate sends one query to Baidu and returns the first translation result.
func (bc *BaiduClient) Translate(ctx context.Context, query, from, to string) (string, error) {
	salt := bc.salt()

	resp, err := bc.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query,
			"from":  from,
			"to":    to,
			"appid": bc.creds.AppID,
			"salt":  salt,
			"sign":  Sign(bc.creds, query, salt),
		}).
		Get(bc.endpoint)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	var apiResp baiduResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.ErrorCode != "" && apiResp.ErrorCode != "52000" {
		return "", &APIError{Code: string(apiResp.ErrorCode), Message: apiResp.ErrorMsg}
	}

	if len(apiResp.TransResult) == 0 {
		return "", fmt.Errorf("empty response: no trans_result")
	}

	log.Debug().
		Str("from", apiResp.From).
		Str("to", apiResp.To).
		Int("results", len(apiResp.TransResult)).
		Msg("Translation complete")

	return apiResp.TransResult[0].Dst, nil
}

func randomSalt() string {
	return strconv.Itoa(1000000 + rand.Intn(9000000))
}
