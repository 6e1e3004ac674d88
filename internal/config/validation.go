package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dbsmedya/questexport/internal/host"
	"github.com/dbsmedya/questexport/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
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
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateExport()...)
	errors = append(errors, c.validateLayout()...)
	errors = append(errors, c.validateHost()...)

	if c.History.Enabled {
		errors = append(errors, c.validateHistory()...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateExport() ValidationErrors {
	var errors ValidationErrors

	if c.Export.Filename == "" {
		errors = append(errors, ValidationError{
			Field:   "export.filename",
			Message: "filename is required",
		})
	} else if filepath.Base(c.Export.Filename) != c.Export.Filename {
		errors = append(errors, ValidationError{
			Field:   "export.filename",
			Message: "filename must not contain a directory component",
		})
	}

	if c.Export.Directory == "" && c.Export.SaveFolder == "" {
		errors = append(errors, ValidationError{
			Field:   "export.save_folder",
			Message: "save_folder is required when directory is not set",
		})
	}

	if c.Export.IntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "export.interval_seconds",
			Message: "interval_seconds must be greater than 0",
		})
	}

	if _, err := host.ParseFormType(c.Export.RecordKind); err != nil {
		errors = append(errors, ValidationError{
			Field:   "export.record_kind",
			Message: err.Error(),
		})
	}

	if c.Export.Placeholder == "" {
		errors = append(errors, ValidationError{
			Field:   "export.placeholder",
			Message: "placeholder cannot be empty",
		})
	}

	return errors
}

func (c *Config) validateLayout() ValidationErrors {
	var errors ValidationErrors

	if c.Layout.StageOffset < 0 {
		errors = append(errors, ValidationError{
			Field:   "layout.stage_offset",
			Message: "stage_offset cannot be negative",
		})
	}

	if c.Layout.Version == "" {
		errors = append(errors, ValidationError{
			Field:   "layout.version",
			Message: "version is required",
		})
	}

	return errors
}

func (c *Config) validateHost() ValidationErrors {
	var errors ValidationErrors

	minimum, err := host.ParseVersion(c.Host.MinimumRuntime)
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   "host.minimum_runtime",
			Message: err.Error(),
		})
	}

	supported, err2 := host.ParseVersion(c.Host.SupportedRuntime)
	if err2 != nil {
		errors = append(errors, ValidationError{
			Field:   "host.supported_runtime",
			Message: err2.Error(),
		})
	}

	if err == nil && err2 == nil && minimum.Compare(supported) > 0 {
		errors = append(errors, ValidationError{
			Field:   "host.minimum_runtime",
			Message: "minimum_runtime cannot be newer than supported_runtime",
		})
	}

	return errors
}

func (c *Config) validateHistory() ValidationErrors {
	var errors ValidationErrors
	db := &c.History.Database

	if !sqlutil.IsValidIdentifier(c.History.Table) {
		errors = append(errors, ValidationError{
			Field:   "history.table",
			Message: "table must contain only alphanumeric characters and underscores",
		})
	}

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "history.database.host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "history.database.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "history.database.user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "history.database.database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "history.database.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
