// Package validation содержит правила проверки полей форм витрины.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	NicknameMinLen = 3
	NicknameMaxLen = 20
	PasswordMinLen = 6
)

// Поля форм.
const (
	FieldNickname        = "nickname"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldAcceptTerms     = "acceptTerms"
)

// Нарушенные правила.
const (
	RuleLength   = "length"
	RuleFormat   = "format"
	RuleMismatch = "mismatch"
	RuleRequired = "required"
)

// ErrInvalid служит общим признаком ошибки валидации для errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error описывает нарушение правила для конкретного поля.
type Error struct {
	Field string
	Rule  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}

// Is позволяет сравнивать ошибку с ErrInvalid.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Nickname проверяет длину никнейма в символах.
func Nickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < NicknameMinLen || n > NicknameMaxLen {
		return &Error{Field: FieldNickname, Rule: RuleLength}
	}
	return nil
}

// Email проверяет форму адреса local@domain.tld.
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return &Error{Field: FieldEmail, Rule: RuleFormat}
	}
	return nil
}

// Password проверяет минимальную длину пароля.
func Password(password string) error {
	return passwordField(FieldPassword, password)
}

func passwordField(field, password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLen {
		return &Error{Field: field, Rule: RuleLength}
	}
	return nil
}

// Confirmation проверяет совпадение пароля и подтверждения.
func Confirmation(password, confirm string) error {
	if password != confirm {
		return &Error{Field: FieldConfirmPassword, Rule: RuleMismatch}
	}
	return nil
}

// NewPassword проверяет новый пароль из формы настроек.
func NewPassword(password, confirm string) error {
	if err := Password(password); err != nil {
		return err
	}
	return Confirmation(password, confirm)
}

// Registration проверяет форму регистрации в порядке полей формы.
func Registration(nickname, email, password, confirm string, acceptTerms bool) error {
	if err := Nickname(nickname); err != nil {
		return err
	}
	if err := Email(email); err != nil {
		return err
	}
	if err := Password(password); err != nil {
		return err
	}
	if err := Confirmation(password, confirm); err != nil {
		return err
	}
	if !acceptTerms {
		return &Error{Field: FieldAcceptTerms, Rule: RuleRequired}
	}
	return nil
}

// Login проверяет форму входа.
func Login(email, password string) error {
	if err := Email(email); err != nil {
		return err
	}
	return Password(password)
}
