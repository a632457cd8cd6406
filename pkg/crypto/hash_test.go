package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("debug-secret")
	if err != nil {
		t.Fatalf("HashPassword вернул ошибку: %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("ожидали bcrypt хеш, получили %q", hash)
	}

	// Два хеша одного пароля различаются (случайный salt)
	hash2, err := HashPassword("debug-secret")
	if err != nil {
		t.Fatalf("HashPassword вернул ошибку: %v", err)
	}
	if hash == hash2 {
		t.Error("хеши с разным salt не должны совпадать")
	}
}

func TestHashPassword_Validation(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("пустой пароль: ожидали ErrEmptyPassword, получили %v", err)
	}

	long := strings.Repeat("x", MaxPasswordLength+1)
	if _, err := HashPassword(long); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("длинный пароль: ожидали ErrPasswordTooLong, получили %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if err := VerifyPassword("correct-password", hash); err != nil {
		t.Errorf("верный пароль: ожидали nil, получили %v", err)
	}

	if err := VerifyPassword("wrong-password", hash); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("неверный пароль: ожидали ErrPasswordMismatch, получили %v", err)
	}

	if err := VerifyPassword("any", "not-a-bcrypt-hash"); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("невалидный хеш: ожидали ErrInvalidHash, получили %v", err)
	}

	if err := VerifyPassword("", hash); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("пустой пароль: ожидали ErrEmptyPassword, получили %v", err)
	}
}

func TestCheckPasswordMatch(t *testing.T) {
	hash, _ := HashPassword("s3cret")

	if !CheckPasswordMatch("s3cret", hash) {
		t.Error("CheckPasswordMatch должен вернуть true для верного пароля")
	}
	if CheckPasswordMatch("other", hash) {
		t.Error("CheckPasswordMatch должен вернуть false для неверного пароля")
	}
}
