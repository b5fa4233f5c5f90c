package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	// Estimated values are stored as decimal(10,2).
	moneyMaxDigits   = 10
	moneyMaxDecimals = 2
)

var maxMoney = decimal.New(1, moneyMaxDigits-moneyMaxDecimals)

// newValidator returns a validator that reports json field names and knows the money rule.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		_, err := parseMoney(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// parseMoney accepts a decimal with at most 10 significant digits, 2 of them fractional.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !d.Equal(d.Round(moneyMaxDecimals)) {
		return decimal.Decimal{}, fmt.Errorf("more than %d decimal places", moneyMaxDecimals)
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return decimal.Decimal{}, fmt.Errorf("more than %d digits", moneyMaxDigits)
	}
	return d.Round(moneyMaxDecimals), nil
}

// checkStruct runs the validator over input and folds failures into verr.
func checkStruct(v *validator.Validate, input interface{}, verr *ValidationError) {
	err := v.Struct(input)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("non_field_errors", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	case "datetime":
		return "Date has wrong format. Use YYYY-MM-DD."
	case "money":
		if s, ok := fe.Value().(string); ok {
			if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
				return "A valid number is required."
			}
		}
		return fmt.Sprintf("Enter a number with at most %d digits and %d decimal places.", moneyMaxDigits, moneyMaxDecimals)
	default:
		return fmt.Sprintf("Field failed on the '%s' rule.", fe.Tag())
	}
}

// Upload is an image attached to a create or update call.
type Upload struct {
	Filename string
	Data     []byte
}

// checkUpload verifies the upload is a non-empty image within maxBytes.
func checkUpload(upload *Upload, maxBytes int, verr *ValidationError) {
	if upload == nil {
		return
	}
	if len(upload.Data) == 0 {
		verr.Add("image", "The submitted file is empty.")
		return
	}
	if maxBytes > 0 && len(upload.Data) > maxBytes {
		verr.Add("image", fmt.Sprintf("Ensure the image is at most %d bytes.", maxBytes))
		return
	}
	if !strings.HasPrefix(mimetype.Detect(upload.Data).String(), "image/") {
		verr.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
}
