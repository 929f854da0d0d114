package payment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sharemeal-platform/pkg/errutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func requireCode(t *testing.T, err error, code errutil.CoreStatus) {
	t.Helper()
	require.Error(t, err)
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, code, be.Code)
}

func signedWalletBody(t *testing.T, v *WalletVerifier, p walletPayload) []byte {
	t.Helper()
	p.Signature = v.sign(&p)
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

func walletFixture() walletPayload {
	return walletPayload{
		PartnerCode:  "SHAREMEAL",
		OrderID:      "order-1",
		RequestID:    "req-1",
		Amount:       70000,
		OrderInfo:    "BXA#42 Ung ho",
		OrderType:    "wallet",
		TransID:      "txn-1001",
		ResultCode:   0,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestWalletVerifyValid(t *testing.T) {
	v := NewWalletVerifier("SHAREMEAL", "test-secret")
	body := signedWalletBody(t, v, walletFixture())

	n, err := v.Verify(body)
	require.NoError(t, err)
	require.Equal(t, ProviderWallet, n.Provider)
	require.Equal(t, "txn-1001", n.TransactionID)
	require.Equal(t, int64(70000), n.Amount)
	require.Equal(t, "order-1", n.OrderRef)
	require.Equal(t, "BXA#42 Ung ho", n.Memo)
	require.False(t, n.Failed)
}

func TestWalletVerifyTamperedAmount(t *testing.T) {
	v := NewWalletVerifier("SHAREMEAL", "test-secret")
	p := walletFixture()
	p.Signature = v.sign(&p)

	// The signature was computed over the original amount.
	p.Amount = 1
	body, err := json.Marshal(p)
	require.NoError(t, err)

	_, err = v.Verify(body)
	requireCode(t, err, errutil.StatusInvalidSignature)
}

func TestWalletVerifyWrongSecret(t *testing.T) {
	signer := NewWalletVerifier("SHAREMEAL", "other-secret")
	body := signedWalletBody(t, signer, walletFixture())

	v := NewWalletVerifier("SHAREMEAL", "test-secret")
	_, err := v.Verify(body)
	requireCode(t, err, errutil.StatusInvalidSignature)
}

func TestWalletVerifyMissingFields(t *testing.T) {
	v := NewWalletVerifier("SHAREMEAL", "test-secret")

	for name, mutate := range map[string]func(*walletPayload){
		"no transaction id": func(p *walletPayload) { p.TransID = "" },
		"no request id":     func(p *walletPayload) { p.RequestID = "" },
		"zero amount":       func(p *walletPayload) { p.Amount = 0 },
		"negative amount":   func(p *walletPayload) { p.Amount = -500 },
	} {
		t.Run(name, func(t *testing.T) {
			p := walletFixture()
			mutate(&p)
			body := signedWalletBody(t, v, p)

			_, err := v.Verify(body)
			requireCode(t, err, errutil.StatusInvalidPayload)
		})
	}
}

func TestWalletVerifyPartnerCodeMismatch(t *testing.T) {
	v := NewWalletVerifier("SHAREMEAL", "test-secret")
	p := walletFixture()
	p.PartnerCode = "SOMEONE_ELSE"
	body := signedWalletBody(t, v, p)

	_, err := v.Verify(body)
	requireCode(t, err, errutil.StatusInvalidPayload)
}

func TestWalletVerifyMalformedJSON(t *testing.T) {
	v := NewWalletVerifier("SHAREMEAL", "test-secret")
	_, err := v.Verify([]byte("{not json"))
	requireCode(t, err, errutil.StatusInvalidPayload)
}

func TestWalletVerifyFailedResult(t *testing.T) {
	v := NewWalletVerifier("SHAREMEAL", "test-secret")
	p := walletFixture()
	p.ResultCode = 1006
	p.Message = "Transaction denied by user."
	body := signedWalletBody(t, v, p)

	n, err := v.Verify(body)
	require.NoError(t, err)
	require.True(t, n.Failed)
}

func TestBankVerifyValid(t *testing.T) {
	v := NewBankVerifier()
	n, err := v.Verify([]byte(`{"bank_txn_id":"FT26001","amount":50000,"memo":"BXA#7 ung ho"}`))
	require.NoError(t, err)
	require.Equal(t, ProviderBank, n.Provider)
	require.Equal(t, "FT26001", n.TransactionID)
	require.Equal(t, int64(50000), n.Amount)
	require.Equal(t, "BXA#7 ung ho", n.Memo)
	require.Empty(t, n.OrderRef)
}

func TestBankVerifyRejectsIncompletePayloads(t *testing.T) {
	v := NewBankVerifier()

	for name, body := range map[string]string{
		"missing bank_txn_id": `{"amount":50000,"memo":"BXA#7"}`,
		"zero amount":         `{"bank_txn_id":"FT26001","amount":0,"memo":"BXA#7"}`,
		"negative amount":     `{"bank_txn_id":"FT26001","amount":-10,"memo":"BXA#7"}`,
		"missing memo":        `{"bank_txn_id":"FT26001","amount":50000}`,
		"malformed json":      `amount=50000`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify([]byte(body))
			requireCode(t, err, errutil.StatusInvalidPayload)
		})
	}
}
