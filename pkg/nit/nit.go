// Package nit valida y formatea el NIT colombiano del emisor (dígito de verificación módulo 11).
package nit

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// pesos DIAN aplicados de derecha a izquierda sobre la base del NIT (máx. 15 dígitos).
var weights = [15]int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

var ErrInvalid = errors.New("nit inválido")

// VerificationDigit calcula el dígito de verificación de la base (solo dígitos, puntos permitidos).
func VerificationDigit(base string) (int, error) {
	digits, err := digitsOf(base)
	if err != nil {
		return 0, err
	}
	if len(digits) == 0 || len(digits) > len(weights) {
		return 0, fmt.Errorf("%w: la base debe tener entre 1 y %d dígitos", ErrInvalid, len(weights))
	}
	var sum int
	for i := range digits {
		sum += int(digits[len(digits)-1-i]-'0') * weights[i]
	}
	r := sum % 11
	if r > 1 {
		return 11 - r, nil
	}
	return r, nil
}

// Split separa "900.373.115-3" en base "900373115" y dígito 3.
// Sin guion, el último dígito se toma como dígito de verificación.
func Split(s string) (base string, dv int, err error) {
	s = strings.TrimSpace(s)
	var dvPart string
	if i := strings.LastIndex(s, "-"); i >= 0 {
		base, dvPart = s[:i], s[i+1:]
	} else {
		if len(s) < 2 {
			return "", 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		base, dvPart = s[:len(s)-1], s[len(s)-1:]
	}
	digits, err := digitsOf(base)
	if err != nil {
		return "", 0, err
	}
	if len(dvPart) != 1 || !unicode.IsDigit(rune(dvPart[0])) {
		return "", 0, fmt.Errorf("%w: dígito de verificación %q", ErrInvalid, dvPart)
	}
	return string(digits), int(dvPart[0] - '0'), nil
}

// Validate verifica que el NIT incluya un dígito de verificación correcto.
func Validate(s string) error {
	base, dv, err := Split(s)
	if err != nil {
		return err
	}
	expected, err := VerificationDigit(base)
	if err != nil {
		return err
	}
	if dv != expected {
		return fmt.Errorf("%w: dígito de verificación esperado %d, recibido %d", ErrInvalid, expected, dv)
	}
	return nil
}

// Format devuelve el NIT con separador de miles y guion: "900.373.115-3".
// Si no es válido se devuelve tal cual.
func Format(s string) string {
	base, dv, err := Split(s)
	if err != nil {
		return s
	}
	var b strings.Builder
	for i, d := range base {
		if i > 0 && (len(base)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("%s-%d", b.String(), dv)
}

func digitsOf(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			out = append(out, byte(r))
		case r == '.' || r == ' ':
		default:
			return nil, fmt.Errorf("%w: carácter %q", ErrInvalid, r)
		}
	}
	return out, nil
}
