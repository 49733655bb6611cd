package seeds

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stemsi/quizroom/internal/model"
	"gopkg.in/yaml.v3"
)

// Bank is the YAML seed document.
type Bank struct {
	Users     []User     `yaml:"users"`
	Questions []Question `yaml:"questions"`
}

// User is an account to create. Existing usernames are skipped.
type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

// Question is a bank entry. Options map a letter to its text and Correct
// names one of the letters.
type Question struct {
	Text       string            `yaml:"text"`
	Options    map[string]string `yaml:"options"`
	Correct    string            `yaml:"correct"`
	Difficulty string            `yaml:"difficulty"`
	Topic      string            `yaml:"topic"`
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bank) validate() error {
	var errs []error
	for i, q := range b.Questions {
		switch {
		case strings.TrimSpace(q.Text) == "":
			errs = append(errs, fmt.Errorf("question %d: text is required", i+1))
		case len(q.Options) < 2:
			errs = append(errs, fmt.Errorf("question %d: at least two options are required", i+1))
		case q.Options[q.Correct] == "":
			errs = append(errs, fmt.Errorf("question %d: correct option %q is not one of the options", i+1, q.Correct))
		case !model.Difficulty(strings.ToUpper(q.Difficulty)).Valid():
			errs = append(errs, fmt.Errorf("question %d: difficulty %q must be EASY, MEDIUM or HARD", i+1, q.Difficulty))
		}
	}
	for i, u := range b.Users {
		if u.Username == "" || u.Password == "" || u.FullName == "" {
			errs = append(errs, fmt.Errorf("user %d: username, password and full_name are required", i+1))
		}
	}
	return errors.Join(errs...)
}

// Demo parses the embedded bank.
func Demo() (*Bank, error) {
	return Parse(Questions)
}
