package storage

import (
	"context"
	"crypto/cipher"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lotas/tabtray/internal/types"
)

// CreditCardStore persists credit cards in SQLite. Card numbers are
// encrypted before they are written; everything else is stored as-is.
type CreditCardStore struct {
	db   *sql.DB
	aead cipher.AEAD
}

// NewCreditCardStore wraps an opened database. secret is the per-install
// key material from LoadOrCreateSecret.
func NewCreditCardStore(db *sql.DB, secret []byte) (*CreditCardStore, error) {
	aead, err := newCardCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("card cipher: %w", err)
	}
	return &CreditCardStore{db: db, aead: aead}, nil
}

// AddCreditCard stores a new card and returns the stored record.
func (s *CreditCardStore) AddCreditCard(ctx context.Context, fields types.UpdatableCreditCardFields) (*types.CreditCard, error) {
	number := digitsOnly(fields.CardNumber)
	if len(number) < 4 {
		return nil, fmt.Errorf("card number too short")
	}

	guid := uuid.NewString()
	sealed, err := seal(s.aead, []byte(number), []byte(guid))
	if err != nil {
		return nil, fmt.Errorf("encrypt card number: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credit_cards (guid, billing_name, number_encrypted, last_four, expiry_month, expiry_year, card_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		guid, strings.TrimSpace(fields.BillingName), sealed, number[len(number)-4:],
		fields.ExpiryMonth, fields.ExpiryYear, strings.ToLower(strings.TrimSpace(fields.CardType)),
	)
	if err != nil {
		return nil, fmt.Errorf("insert credit card: %w", err)
	}
	return s.GetCreditCard(ctx, guid)
}

// GetCreditCard loads a card by GUID. It returns ErrNotFound if there is none.
func (s *CreditCardStore) GetCreditCard(ctx context.Context, guid string) (*types.CreditCard, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT guid, billing_name, last_four, expiry_month, expiry_year, card_type, created_at
		 FROM credit_cards WHERE guid = ?`, guid)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credit card %s: %w", guid, ErrNotFound)
		}
		return nil, fmt.Errorf("query credit card: %w", err)
	}
	return card, nil
}

// ListCreditCards returns all cards, newest first.
func (s *CreditCardStore) ListCreditCards(ctx context.Context) ([]types.CreditCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guid, billing_name, last_four, expiry_month, expiry_year, card_type, created_at
		 FROM credit_cards ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query credit cards: %w", err)
	}
	defer rows.Close()

	var result []types.CreditCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		result = append(result, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit cards: %w", err)
	}
	return result, nil
}

// DeleteCreditCard removes a card by GUID. It returns ErrNotFound if there is none.
func (s *CreditCardStore) DeleteCreditCard(ctx context.Context, guid string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM credit_cards WHERE guid = ?", guid)
	if err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("credit card %s: %w", guid, ErrNotFound)
	}
	return nil
}

// DecryptCardNumber returns the full card number and records the card as used.
func (s *CreditCardStore) DecryptCardNumber(ctx context.Context, guid string) (string, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx, "SELECT number_encrypted FROM credit_cards WHERE guid = ?", guid).Scan(&sealed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("credit card %s: %w", guid, ErrNotFound)
		}
		return "", fmt.Errorf("query card number: %w", err)
	}

	plain, err := open(s.aead, sealed, []byte(guid))
	if err != nil {
		return "", fmt.Errorf("decrypt card number: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE credit_cards SET times_used = times_used + 1, last_used_at = ? WHERE guid = ?",
		time.Now().UTC(), guid,
	); err != nil {
		return "", fmt.Errorf("record card use: %w", err)
	}
	return string(plain), nil
}

// TimesUsed reports how often the card's number has been decrypted.
func (s *CreditCardStore) TimesUsed(ctx context.Context, guid string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT times_used FROM credit_cards WHERE guid = ?", guid).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("credit card %s: %w", guid, ErrNotFound)
	}
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*types.CreditCard, error) {
	var c types.CreditCard
	if err := row.Scan(&c.GUID, &c.BillingName, &c.LastFour, &c.ExpiryMonth, &c.ExpiryYear, &c.CardType, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
