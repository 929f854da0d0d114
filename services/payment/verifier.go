package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"sharemeal-platform/pkg/errutil"
)

// Notification is the provider-independent view of a verified payment
// callback. The verifier owns all provider-specific payload knowledge; the
// rest of the pipeline only sees this struct.
type Notification struct {
	Provider      Provider
	TransactionID string
	Amount        int64
	// OrderRef is an explicit order/campaign reference carried by the
	// payload, when the provider supports one.
	OrderRef string
	Memo     string
	PaidAt   time.Time
	// Failed marks a notification the provider reports as unsuccessful.
	Failed bool
	Raw    json.RawMessage
}

// Verifier authenticates a raw notification payload for one provider.
type Verifier interface {
	Provider() Provider
	Verify(payload []byte) (*Notification, error)
}

// walletPayload mirrors the wallet gateway's IPN body.
type walletPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      string `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// WalletVerifier recomputes the gateway's HMAC-SHA256 over the canonical
// field string and compares in constant time.
type WalletVerifier struct {
	partnerCode string
	secret      []byte
}

func NewWalletVerifier(partnerCode, secretKey string) *WalletVerifier {
	return &WalletVerifier{
		partnerCode: partnerCode,
		secret:      []byte(secretKey),
	}
}

func (v *WalletVerifier) Provider() Provider {
	return ProviderWallet
}

func (v *WalletVerifier) Verify(payload []byte) (*Notification, error) {
	var p walletPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errutil.InvalidPayload("malformed wallet notification", errutil.WithErr(err))
	}

	if p.TransID == "" || p.RequestID == "" || p.Amount <= 0 {
		return nil, errutil.InvalidPayload("wallet notification missing required fields")
	}
	if v.partnerCode != "" && p.PartnerCode != v.partnerCode {
		return nil, errutil.InvalidPayload("wallet notification partner code mismatch")
	}

	expected := v.sign(&p)
	if !hmac.Equal([]byte(expected), []byte(p.Signature)) {
		return nil, errutil.InvalidSignature("wallet notification signature mismatch")
	}

	return &Notification{
		Provider:      ProviderWallet,
		TransactionID: p.TransID,
		Amount:        p.Amount,
		OrderRef:      p.OrderID,
		Memo:          p.OrderInfo,
		PaidAt:        time.UnixMilli(p.ResponseTime),
		Failed:        p.ResultCode != 0,
		Raw:           json.RawMessage(payload),
	}, nil
}

// sign builds the canonical field string in the order the gateway specifies
// and returns its hex HMAC-SHA256.
func (v *WalletVerifier) sign(p *walletPayload) string {
	raw := fmt.Sprintf("amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%s",
		p.Amount, p.ExtraData, p.Message, p.OrderID, p.OrderInfo, p.OrderType,
		p.PartnerCode, p.PayType, p.RequestID, p.ResponseTime, p.ResultCode, p.TransID)

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// bankPayload mirrors the bank-transfer gateway's callback body. The bank
// gateway cannot sign, so verification is structural only.
type bankPayload struct {
	BankTxnID string     `json:"bank_txn_id"`
	Amount    int64      `json:"amount"`
	Memo      string     `json:"memo"`
	PaidAt    *time.Time `json:"paid_at"`
}

type BankVerifier struct{}

func NewBankVerifier() *BankVerifier {
	return &BankVerifier{}
}

func (v *BankVerifier) Provider() Provider {
	return ProviderBank
}

func (v *BankVerifier) Verify(payload []byte) (*Notification, error) {
	var p bankPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errutil.InvalidPayload("malformed bank notification", errutil.WithErr(err))
	}

	if p.BankTxnID == "" {
		return nil, errutil.InvalidPayload("bank notification missing bank_txn_id")
	}
	if p.Amount <= 0 {
		return nil, errutil.InvalidPayload("bank notification amount must be a positive integer")
	}
	if p.Memo == "" {
		return nil, errutil.InvalidPayload("bank notification missing memo")
	}

	paidAt := time.Now()
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}

	return &Notification{
		Provider:      ProviderBank,
		TransactionID: p.BankTxnID,
		Amount:        p.Amount,
		Memo:          p.Memo,
		PaidAt:        paidAt,
		Raw:           json.RawMessage(payload),
	}, nil
}
