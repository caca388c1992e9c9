package saveuser

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxNameLength = 255

type Input struct {
	Name string `json:"name"`
}

// Validate expects Name to be trimmed already.
func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.RuneLength(1, maxNameLength)),
	)
}

type Output struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
