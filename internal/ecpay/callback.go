// Package ecpay relays ECPay payment notifications (form-encoded) to a JSON
// endpoint such as a Zoho Creator custom API.
package ecpay

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uneedwind/webhook-gateway/internal/form"
)

// Plain-text acknowledgements ECPay expects from the merchant endpoint.
const (
	AckOK               = "1|OK"
	AckMethodNotAllowed = "0|Method Not Allowed"
	AckParseError       = "0|Parse Error"
	AckMissingFields    = "0|Missing required fields"
	AckUpstreamError    = "0|Zoho Processing Error"
	AckInternalError    = "0|Internal Server Error"
	AckRequestError     = "0|Request Error"
	formContentType     = "application/x-www-form-urlencoded"

	// processedAtLayout is RFC 3339 in UTC with millisecond precision.
	processedAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

var (
	// ErrMissingFields is returned when a callback lacks a required field.
	ErrMissingFields = errors.New("missing required fields")

	validate = validator.New()
)

// Callback holds the form fields of an ECPay payment result notification.
type Callback struct {
	MerchantID           string
	MerchantTradeNo      string `validate:"required"`
	TradeNo              string
	RtnCode              string `validate:"required"`
	RtnMsg               string
	PaymentType          string
	PaymentDate          string
	TradeAmt             string
	PaymentTypeChargeFee string
	CheckMacValue        string `validate:"required"`
	CustomField1         string
	CustomField2         string
	CustomField3         string
	CustomField4         string
	StoreID              string
	SimulatePaid         string
	TradeDate            string
}

// ParseCallback decodes a form-encoded body into a Callback. A field present
// more than once keeps its first value.
func ParseCallback(body string) (Callback, error) {
	values, err := form.Parse(body)
	if err != nil {
		return Callback{}, fmt.Errorf("parse form body: %w", err)
	}
	cb := Callback{
		MerchantID:           values.Get("MerchantID"),
		MerchantTradeNo:      values.Get("MerchantTradeNo"),
		TradeNo:              values.Get("TradeNo"),
		RtnCode:              values.Get("RtnCode"),
		RtnMsg:               values.Get("RtnMsg"),
		PaymentType:          values.Get("PaymentType"),
		PaymentDate:          values.Get("PaymentDate"),
		TradeAmt:             values.Get("TradeAmt"),
		PaymentTypeChargeFee: values.Get("PaymentTypeChargeFee"),
		CheckMacValue:        values.Get("CheckMacValue"),
		CustomField1:         values.Get("CustomField1"),
		CustomField2:         values.Get("CustomField2"),
		CustomField3:         values.Get("CustomField3"),
		CustomField4:         values.Get("CustomField4"),
		StoreID:              values.Get("StoreID"),
		SimulatePaid:         values.Get("SimulatePaid"),
		TradeDate:            values.Get("TradeDate"),
	}
	return cb, nil
}

// Validate reports ErrMissingFields, naming the absent fields.
func (c Callback) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
}

// Payload is the JSON document forwarded upstream.
type Payload struct {
	MerchantID           string `json:"MerchantID"`
	MerchantTradeNo      string `json:"MerchantTradeNo"`
	TradeNo              string `json:"TradeNo"`
	RtnCode              string `json:"RtnCode"`
	RtnMsg               string `json:"RtnMsg"`
	PaymentType          string `json:"PaymentType"`
	PaymentDate          string `json:"PaymentDate"`
	TradeAmt             string `json:"TradeAmt"`
	PaymentTypeChargeFee string `json:"PaymentTypeChargeFee"`
	CheckMacValue        string `json:"CheckMacValue"`
	CustomField1         string `json:"CustomField1"`
	CustomField2         string `json:"CustomField2"`
	CustomField3         string `json:"CustomField3"`
	CustomField4         string `json:"CustomField4"`
	StoreID              string `json:"StoreID"`
	SimulatePaid         string `json:"SimulatePaid"`
	TradeDate            string `json:"TradeDate"`
	ProcessedAt          string `json:"ProcessedAt"`
	OriginalContentType  string `json:"OriginalContentType"`
}

// Payload converts the callback into the forwarded document. Amount-like
// fields default to "0"; other optional fields stay empty.
func (c Callback) Payload(now time.Time) Payload {
	return Payload{
		MerchantID:           c.MerchantID,
		MerchantTradeNo:      c.MerchantTradeNo,
		TradeNo:              c.TradeNo,
		RtnCode:              c.RtnCode,
		RtnMsg:               c.RtnMsg,
		PaymentType:          c.PaymentType,
		PaymentDate:          c.PaymentDate,
		TradeAmt:             orDefault(c.TradeAmt, "0"),
		PaymentTypeChargeFee: orDefault(c.PaymentTypeChargeFee, "0"),
		CheckMacValue:        c.CheckMacValue,
		CustomField1:         c.CustomField1,
		CustomField2:         c.CustomField2,
		CustomField3:         c.CustomField3,
		CustomField4:         c.CustomField4,
		StoreID:              c.StoreID,
		SimulatePaid:         orDefault(c.SimulatePaid, "0"),
		TradeDate:            c.TradeDate,
		ProcessedAt:          now.UTC().Format(processedAtLayout),
		OriginalContentType:  formContentType,
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
