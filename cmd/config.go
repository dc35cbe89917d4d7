package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/letsencrypt/validator/v10"

	"github.com/pkiexamples/crlkit/strictyaml"
)

// ReadConfigFile reads the YAML file at filename into out, rejecting unknown
// fields.
func ReadConfigFile(filename string, out interface{}) error {
	configData, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return strictyaml.Unmarshal(configData, out)
}

// ValidateYAMLConfig takes a *ConfigValidator and an io.Reader containing a
// YAML representation of a config. It strictly decodes the YAML into the
// ConfigValidator's Config and then validates it.
func ValidateYAMLConfig(cv *ConfigValidator, in io.Reader) error {
	if cv == nil {
		return errors.New("config validator cannot be nil")
	}
	inBytes, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	err = strictyaml.Unmarshal(inBytes, cv.Config)
	if err != nil {
		return err
	}
	return ValidateConfig(cv.Config, cv.Validators)
}

// ValidateConfig checks the validate struct tags of config, using any custom
// validators provided. Every failing field is reported in a single error.
func ValidateConfig(config interface{}, validators map[string]validator.Func) error {
	validate := validator.New()
	for tag, v := range validators {
		err := validate.RegisterValidation(tag, v)
		if err != nil {
			return err
		}
	}

	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s failed validation %q", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}
