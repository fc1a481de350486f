package testutil

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

// Password satisfies the password policy for every user created by CreateUser.
const Password = "Correct-Horse-42"

// NewValidator returns a validator with every custom tag and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	return validate, translator
}

// CreateUser stores a user with Password, bypassing input validation.
func CreateUser(t *testing.T, svc user.Service, name, email string, role user.Role) user.User {
	t.Helper()
	usr, err := svc.Create(context.Background(), user.NewUser{Name: name, Email: email, Password: Password, Role: role})
	require.NoError(t, err)
	return usr
}

// Mailer records rendered messages synchronously.
type Mailer struct {
	Conf     *core.Config
	Messages []core.EmailMessage
}

var _ core.EmailService = (*Mailer)(nil)

func (m *Mailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(m.Conf); err == nil {
			m.Messages = append(m.Messages, *msg)
		}
	}
}
