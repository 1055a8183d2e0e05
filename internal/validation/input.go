package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinListingTitleLength       = 3
	MaxListingTitleLength       = 200
	MaxListingDescriptionLength = 5000
	MaxLocationLength           = 100
	MaxSportLength              = 50
	MaxPhoneLength              = 32
	MaxPersonNameLength         = 100
	MinPromotionDays            = 1
	MaxPromotionDays            = 365
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex       = regexp.MustCompile(`^\+?[0-9\s\-()]{5,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidatePhone проверяет номер телефона. Пустое значение допустимо.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if err := ValidateLength("телефон", phone, 0, MaxPhoneLength); err != nil {
		return err
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("некорректный формат телефона")
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateListingTitle проверяет заголовок объявления.
func ValidateListingTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("заголовок объявления обязателен")
	}
	return ValidateLength("заголовок объявления", title, MinListingTitleLength, MaxListingTitleLength)
}

// ValidateLocation проверяет местоположение.
func ValidateLocation(location string) error {
	return ValidateLength("местоположение", strings.TrimSpace(location), 0, MaxLocationLength)
}

func ValidateSport(sport string) error {
	return ValidateLength("вид спорта", strings.TrimSpace(sport), 0, MaxSportLength)
}

// ValidatePromotionDays проверяет срок продвижения в днях.
func ValidatePromotionDays(days int) error {
	if days < MinPromotionDays {
		return fmt.Errorf("срок продвижения должен быть не менее %d дня", MinPromotionDays)
	}
	if days > MaxPromotionDays {
		return fmt.Errorf("срок продвижения не может превышать %d дней", MaxPromotionDays)
	}
	return nil
}
