package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/letsencrypt/validator/v10"

	"github.com/pkiexamples/crlkit/config"
	"github.com/pkiexamples/crlkit/test"
)

type sampleConfig struct {
	Sample struct {
		Sources []string        `yaml:"sources" validate:"min=1,dive,required"`
		Timeout config.Duration `yaml:"timeout"`
		Mode    string          `yaml:"mode" validate:"oneof=fast slow"`
	} `yaml:"sample"`
}

func TestReadConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	err := os.WriteFile(good, []byte("sample:\n  sources: [a.crl, b.crl]\n  timeout: 5s\n  mode: fast\n"), 0o600)
	test.AssertNotError(t, err, "writing config")

	var c sampleConfig
	err = ReadConfigFile(good, &c)
	test.AssertNotError(t, err, "reading valid config")
	test.AssertDeepEquals(t, c.Sample.Sources, []string{"a.crl", "b.crl"})
	test.AssertEquals(t, c.Sample.Timeout.Duration.String(), "5s")

	unknown := filepath.Join(dir, "unknown.yaml")
	err = os.WriteFile(unknown, []byte("sample:\n  sauces: [a.crl]\n"), 0o600)
	test.AssertNotError(t, err, "writing config")
	err = ReadConfigFile(unknown, &c)
	test.AssertError(t, err, "unknown fields should be rejected")

	err = ReadConfigFile(filepath.Join(dir, "missing.yaml"), &c)
	test.AssertError(t, err, "missing file should fail")
}

func TestValidateYAMLConfig(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		yaml    string
		wantErr []string
	}{
		{
			name: "valid",
			yaml: "sample:\n  sources: [a.crl]\n  timeout: 1m\n  mode: slow\n",
		},
		{
			name:    "no sources",
			yaml:    "sample:\n  sources: []\n  timeout: 1m\n  mode: slow\n",
			wantErr: []string{`sampleConfig.Sample.Sources failed validation "min"`},
		},
		{
			name:    "empty source and bad mode",
			yaml:    "sample:\n  sources: ['']\n  timeout: 1m\n  mode: medium\n",
			wantErr: []string{`Sources[0] failed validation "required"`, `Mode failed validation "oneof"`},
		},
		{
			name:    "missing timeout",
			yaml:    "sample:\n  sources: [a.crl]\n  mode: slow\n",
			wantErr: []string{`Timeout.Duration failed validation "required"`},
		},
		{
			name:    "integer timeout",
			yaml:    "sample:\n  sources: [a.crl]\n  timeout: 60\n  mode: slow\n",
			wantErr: []string{"into a Duration"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateYAMLConfig(&ConfigValidator{Config: &sampleConfig{}}, strings.NewReader(tc.yaml))
			if len(tc.wantErr) == 0 {
				test.AssertNotError(t, err, "valid config")
				return
			}
			test.AssertError(t, err, "invalid config")
			for _, want := range tc.wantErr {
				test.AssertContains(t, err.Error(), want)
			}
		})
	}

	err := ValidateYAMLConfig(nil, strings.NewReader(""))
	test.AssertError(t, err, "nil validator")
}

func TestValidateConfigCustomValidator(t *testing.T) {
	t.Parallel()
	type custom struct {
		Name string `validate:"crlname"`
	}
	validators := map[string]validator.Func{
		"crlname": func(fl validator.FieldLevel) bool {
			return strings.HasSuffix(fl.Field().String(), ".crl")
		},
	}
	test.AssertNotError(t, ValidateConfig(&custom{Name: "a.crl"}, validators), "suffix present")
	err := ValidateConfig(&custom{Name: "a.pem"}, validators)
	test.AssertError(t, err, "suffix missing")
	test.AssertContains(t, err.Error(), `custom.Name failed validation "crlname"`)
}
