package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/duke-git/lancet/v2/strutil"

	"yqhp/graph-loadtest/pkg/types"
)

// supportedSchemes lists the URI schemes a run can target.
var supportedSchemes = map[string]bool{
	"bolt":      true,
	"bolt+s":    true,
	"bolt+ssc":  true,
	"neo4j":     true,
	"neo4j+s":   true,
	"neo4j+ssc": true,
	"memory":    true,
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *RunConfig) error {
	v.errors = make(ValidationErrors, 0)

	v.validateConnection(cfg)
	v.validateRun(cfg)
	v.validateQueries(&cfg.Queries)
	v.validateLogging(cfg)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// Validate is shorthand for NewValidator().Validate(c).
func (c *RunConfig) Validate() error {
	return NewValidator().Validate(c)
}

func (v *Validator) validateConnection(cfg *RunConfig) {
	if strutil.IsBlank(cfg.ServerURI) {
		v.addError("server_uri", "server uri is required")
	} else if u, err := url.Parse(cfg.ServerURI); err != nil {
		v.addError("server_uri", fmt.Sprintf("invalid uri: %v", err))
	} else if !supportedSchemes[strings.ToLower(u.Scheme)] {
		v.addError("server_uri", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	if !strutil.IsBlank(cfg.AdminPass) && strutil.IsBlank(cfg.AdminUser) {
		v.addError("admin_user", "admin user is required when a password is set")
	}
}

func (v *Validator) validateRun(cfg *RunConfig) {
	if cfg.TimesToRun < 0 {
		v.addError("times_to_run", "times to run must be non-negative")
	}

	if cfg.Workers <= 0 {
		v.addError("workers", "workers must be positive")
	}

	if _, err := types.ParseOrder(string(cfg.Order)); err != nil {
		v.addError("order", err.Error())
	}

	if cfg.TxTimeout < 0 {
		v.addError("tx_timeout", "transaction timeout must be non-negative")
	}
}

func (v *Validator) validateQueries(qs *QuerySet) {
	for _, e := range qs.entries {
		field := "queries." + e.Name

		if strutil.IsBlank(e.Name) {
			v.addError("queries", "query name must not be blank")
		}

		if !types.QueryKind(e.Spec.Type).IsValid() {
			v.addError(field+".type", fmt.Sprintf("unknown query type %q (expected read, write or rollback)", e.Spec.Type))
		}

		hasInline := e.Spec.CQL.Len() > 0
		hasFiles := e.Spec.CQLFiles != ""
		switch {
		case hasInline && hasFiles:
			v.addError(field, "cql and cql_files are mutually exclusive")
			continue
		case !hasInline && !hasFiles:
			v.addError(field+".cql", "at least one statement is required")
			continue
		}

		for i, stmt := range e.Spec.statements().All() {
			if strutil.IsBlank(stmt) {
				v.addError(fmt.Sprintf("%s.cql[%d]", field, i), "statement must not be blank")
			}
		}
	}
}

func (v *Validator) validateLogging(cfg *RunConfig) {
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		v.addError("log.level", fmt.Sprintf("unknown level %q", cfg.Log.Level))
	}

	switch cfg.Log.Output {
	case "", "stdout", "file", "both":
	default:
		v.addError("log.output", fmt.Sprintf("unknown output %q (expected stdout, file or both)", cfg.Log.Output))
	}
}
