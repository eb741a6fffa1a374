package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lotas/tabtray/internal/types"
)

func testCardStore(t *testing.T) *CreditCardStore {
	t.Helper()
	secret, err := LoadOrCreateSecret(filepath.Join(t.TempDir(), "cards.key"))
	if err != nil {
		t.Fatalf("LoadOrCreateSecret: %v", err)
	}
	s, err := NewCreditCardStore(testDB(t), secret)
	if err != nil {
		t.Fatalf("NewCreditCardStore: %v", err)
	}
	return s
}

var bananaApple = types.UpdatableCreditCardFields{
	BillingName: "Banana Apple",
	CardNumber:  "4111 1111 1111 1112",
	ExpiryMonth: 1,
	ExpiryYear:  2030,
	CardType:    "Discover",
}

func TestAddAndGetCreditCard(t *testing.T) {
	s := testCardStore(t)
	ctx := context.Background()

	card, err := s.AddCreditCard(ctx, bananaApple)
	if err != nil {
		t.Fatalf("AddCreditCard: %v", err)
	}
	if card.GUID == "" {
		t.Fatal("empty GUID")
	}
	if card.BillingName != "Banana Apple" || card.LastFour != "1112" || card.CardType != "discover" {
		t.Errorf("card = %+v", card)
	}
	if card.ExpiryMonth != 1 || card.ExpiryYear != 2030 {
		t.Errorf("expiry = %d/%d", card.ExpiryMonth, card.ExpiryYear)
	}
	if card.ObscuredNumber() != "•••• 1112" {
		t.Errorf("ObscuredNumber = %q", card.ObscuredNumber())
	}

	got, err := s.GetCreditCard(ctx, card.GUID)
	if err != nil {
		t.Fatalf("GetCreditCard: %v", err)
	}
	if got.GUID != card.GUID {
		t.Errorf("GUID = %q, want %q", got.GUID, card.GUID)
	}
}

func TestCardNumberIsEncryptedAtRest(t *testing.T) {
	s := testCardStore(t)
	ctx := context.Background()

	card, err := s.AddCreditCard(ctx, bananaApple)
	if err != nil {
		t.Fatalf("AddCreditCard: %v", err)
	}

	var raw []byte
	if err := s.db.QueryRow("SELECT number_encrypted FROM credit_cards WHERE guid = ?", card.GUID).Scan(&raw); err != nil {
		t.Fatalf("query: %v", err)
	}
	if bytes.Contains(raw, []byte("4111111111111112")) {
		t.Fatal("card number stored in plain text")
	}

	number, err := s.DecryptCardNumber(ctx, card.GUID)
	if err != nil {
		t.Fatalf("DecryptCardNumber: %v", err)
	}
	if number != "4111111111111112" {
		t.Errorf("number = %q", number)
	}

	used, err := s.TimesUsed(ctx, card.GUID)
	if err != nil {
		t.Fatalf("TimesUsed: %v", err)
	}
	if used != 1 {
		t.Errorf("times used = %d, want 1", used)
	}
}

func TestDecryptWithWrongSecretFails(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s1, _ := NewCreditCardStore(db, bytes.Repeat([]byte{1}, 32))
	card, err := s1.AddCreditCard(ctx, bananaApple)
	if err != nil {
		t.Fatalf("AddCreditCard: %v", err)
	}

	s2, _ := NewCreditCardStore(db, bytes.Repeat([]byte{2}, 32))
	if _, err := s2.DecryptCardNumber(ctx, card.GUID); err == nil {
		t.Fatal("expected decrypt error with a different secret")
	}
}

func TestListAndDeleteCreditCards(t *testing.T) {
	s := testCardStore(t)
	ctx := context.Background()

	first, _ := s.AddCreditCard(ctx, bananaApple)
	second, _ := s.AddCreditCard(ctx, types.UpdatableCreditCardFields{
		BillingName: "Kiwi Pear", CardNumber: "5555555555554444", ExpiryMonth: 6, ExpiryYear: 2029, CardType: "mastercard",
	})

	list, err := s.ListCreditCards(ctx)
	if err != nil {
		t.Fatalf("ListCreditCards: %v", err)
	}
	if len(list) != 2 || list[0].GUID != second.GUID || list[1].GUID != first.GUID {
		t.Fatalf("list = %+v, want newest first", list)
	}

	if err := s.DeleteCreditCard(ctx, first.GUID); err != nil {
		t.Fatalf("DeleteCreditCard: %v", err)
	}
	if err := s.DeleteCreditCard(ctx, first.GUID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetCreditCard(ctx, first.GUID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted err = %v, want ErrNotFound", err)
	}
}

func TestAddCreditCardRejectsShortNumber(t *testing.T) {
	s := testCardStore(t)
	fields := bananaApple
	fields.CardNumber = "12"
	if _, err := s.AddCreditCard(context.Background(), fields); err == nil {
		t.Fatal("expected error for short card number")
	}
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cards.key")

	first, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(first) != secretSize {
		t.Fatalf("len = %d", len(first))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	second, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("secret changed between loads")
	}

	os.WriteFile(path, []byte("short"), 0o600)
	if _, err := LoadOrCreateSecret(path); err == nil {
		t.Error("expected error for truncated secret")
	}
}

func TestSecretPath(t *testing.T) {
	got := SecretPath(filepath.Join("/data", "tabtray", "tabtray.db"))
	if got != filepath.Join("/data", "tabtray", "cards.key") {
		t.Errorf("SecretPath = %q", got)
	}
}
