package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/paseospeludos/backend/internal/config"
	"github.com/paseospeludos/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// BankTransferService builds the instructions a client follows to pay by SPEI
type BankTransferService struct {
	cfg config.BankConfig
}

func NewBankTransferService(cfg config.BankConfig) *BankTransferService {
	return &BankTransferService{cfg: cfg}
}

// Instructions returns the static bank details for a payment. The QR image is
// left empty if it cannot be rendered.
func (s *BankTransferService) Instructions(paymentID string, amount decimal.Decimal, currency string) *models.BankInstructions {
	instructions := &models.BankInstructions{
		Beneficiary:  s.cfg.Beneficiary,
		CLABE:        s.cfg.CLABE,
		BankName:     s.cfg.BankName,
		Instructions: s.cfg.Instructions,
		Reference:    paymentID,
		Amount:       amount,
		Currency:     currency,
	}

	qrImage, err := s.generateQRImage(s.qrPayload(paymentID, amount, currency))
	if err == nil {
		instructions.QRImage = qrImage
	}
	return instructions
}

func (s *BankTransferService) qrPayload(paymentID string, amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("SPEI|CLABE:%s|BENEFICIARIO:%s|BANCO:%s|MONTO:%s %s|REF:%s",
		s.cfg.CLABE, s.cfg.Beneficiary, s.cfg.BankName, amount.StringFixed(2), currency, paymentID)
}

func (s *BankTransferService) generateQRImage(data string) (string, error) {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
