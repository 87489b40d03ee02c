package Mpesa

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client talks to the M-PESA STK push gateway. The core treats the
// gateway as fire-and-forget: the result comes back later through the
// callback route with our transaction id as the account reference.
type Client struct {
	BaseURL     string
	ShortCode   string
	Passkey     string
	CallbackURL string

	// Disabled short-circuits the gateway in development; the push is
	// acknowledged locally and settlement waits for a manual callback.
	Disabled bool

	HTTPClient *http.Client
}

func NewClient(baseURL, shortCode, passkey, callbackURL string, disabled bool) *Client {
	return &Client{
		BaseURL:     baseURL,
		ShortCode:   shortCode,
		Passkey:     passkey,
		CallbackURL: callbackURL,
		Disabled:    disabled,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// InitiateSTKPush sends the payment prompt to the payer's phone. The
// reference is our payment transaction id, echoed back in the callback.
func (c *Client) InitiateSTKPush(phone string, amount decimal.Decimal, reference, description string) (*STKPushResponse, error) {
	if c.Disabled {
		return &STKPushResponse{
			ResponseCode:        "0",
			ResponseDescription: "Gateway disabled, push skipped",
			CustomerMessage:     "Development mode",
		}, nil
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + timestamp))

	payload := stkPushRequest{
		BusinessShortCode: c.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount.StringFixed(0),
		PartyA:            phone,
		PartyB:            c.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.CallbackURL,
		AccountReference:  reference,
		TransactionDesc:   description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode STK push request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create STK push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("STK push request failed: %w", err)
	}
	defer res.Body.Close()

	var response STKPushResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode STK push response: %w", err)
	}
	if response.ResponseCode != "0" {
		return &response, fmt.Errorf("STK push rejected: %s", response.ResponseDescription)
	}
	return &response, nil
}

// CallbackPayload is the normalized result the gateway adapter posts back
// to our callback route.
type CallbackPayload struct {
	TransactionID      string `json:"transaction_id" validate:"required"`
	Success            bool   `json:"success"`
	MpesaReceiptNumber string `json:"mpesa_receipt_number"`
	FailureReason      string `json:"failure_reason"`
}
