package entity

type ErrorCategory string

const (
	CategoryInvalidProperty ErrorCategory = "invalidProperty"
	CategoryInvalidView     ErrorCategory = "invalidView"
	CategoryFormulaError    ErrorCategory = "formulaError"
	CategoryInvalidBlock    ErrorCategory = "invalidBlock"
	CategoryMissingFields   ErrorCategory = "missingFields"
	CategoryMalformedJSON   ErrorCategory = "malformedJson"
)

// ErrorCategories lists every category in a stable order.
var ErrorCategories = []ErrorCategory{
	CategoryInvalidProperty,
	CategoryInvalidView,
	CategoryFormulaError,
	CategoryInvalidBlock,
	CategoryMissingFields,
	CategoryMalformedJSON,
}

type ValidationVerdict struct {
	IsValid       bool          `json:"isValid"`
	ErrorCategory ErrorCategory `json:"errorCategory,omitempty"`
	Detail        string        `json:"detail,omitempty"`
}

func Valid() ValidationVerdict {
	return ValidationVerdict{IsValid: true}
}

func Invalid(category ErrorCategory, detail string) ValidationVerdict {
	return ValidationVerdict{ErrorCategory: category, Detail: detail}
}
