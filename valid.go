package mscfb

type Validation int

const (
	ValidationPermissive Validation = iota
	ValidationStrict     Validation = iota
)

// ValidationFromStrict picks the validation mode for a strict flag.
func ValidationFromStrict(strict bool) Validation {
	if strict {
		return ValidationStrict
	}
	return ValidationPermissive
}

func (v Validation) IsStrict() bool {
	return v == ValidationStrict
}
