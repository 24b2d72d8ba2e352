// internal/output/types.go
package output

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// OutputFormat represents supported output formats
type OutputFormat string

const (
	FormatJSON       OutputFormat = "json"
	FormatCSV        OutputFormat = "csv"
	FormatYAML       OutputFormat = "yaml"
	FormatXLSX       OutputFormat = "xlsx"
	FormatSQLite     OutputFormat = "sqlite"
	FormatMySQL      OutputFormat = "mysql"
	FormatPostgreSQL OutputFormat = "postgresql"
	FormatMongoDB    OutputFormat = "mongodb"
)

// ValidOutputFormats returns all valid output format values
func ValidOutputFormats() []OutputFormat {
	return []OutputFormat{
		FormatJSON, FormatCSV, FormatYAML, FormatXLSX,
		FormatSQLite, FormatMySQL, FormatPostgreSQL, FormatMongoDB,
	}
}

// IsValid checks if the output format is valid
func (of OutputFormat) IsValid() bool {
	for _, valid := range ValidOutputFormats() {
		if of == valid {
			return true
		}
	}
	return false
}

// IsFile reports whether the format writes to a local file.
func (of OutputFormat) IsFile() bool {
	switch of {
	case FormatJSON, FormatCSV, FormatYAML, FormatXLSX:
		return true
	}
	return false
}

// IsDatabase reports whether the format writes to a database.
func (of OutputFormat) IsDatabase() bool {
	return of.IsValid() && !of.IsFile()
}

// GetFileExtension returns the appropriate file extension for the format
func (of OutputFormat) GetFileExtension() string {
	switch of {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatYAML:
		return ".yaml"
	case FormatXLSX:
		return ".xlsx"
	case FormatSQLite:
		return ".db"
	default:
		return ""
	}
}

// Writer persists records.
type Writer interface {
	Write(records []types.Record) error
	Close() error
}

// recordColumns is the flat column order shared by the tabular sinks.
var recordColumns = []string{
	"source_url", "section", "question", "answer_text", "answer_html", "links", "images",
}

// SQL identifier validation
var (
	// SQL identifier regex: starts with letter or underscore, contains letters, digits, underscores
	sqlIdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// a subset of words reserved by every supported SQL dialect
	reservedWords = map[string]bool{
		"ALL": true, "AND": true, "AS": true, "ASC": true, "BY": true, "CASE": true, "CHECK": true,
		"COLUMN": true, "CREATE": true, "DEFAULT": true, "DELETE": true, "DESC": true, "DISTINCT": true,
		"DROP": true, "ELSE": true, "FROM": true, "GROUP": true, "IN": true, "INDEX": true, "INSERT": true,
		"INTO": true, "IS": true, "JOIN": true, "KEY": true, "LIKE": true, "LIMIT": true, "NOT": true,
		"NULL": true, "ON": true, "OR": true, "ORDER": true, "PRIMARY": true, "SELECT": true, "SET": true,
		"TABLE": true, "UNION": true, "UNIQUE": true, "UPDATE": true, "USER": true, "VALUES": true,
		"WHERE": true, "WITH": true,
	}
)

// MaxIdentifierLength is the strictest identifier limit among the SQL sinks (PostgreSQL).
const MaxIdentifierLength = 63

// ValidateSQLIdentifier validates that a string is a safe SQL identifier
func ValidateSQLIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(identifier) > MaxIdentifierLength {
		return fmt.Errorf("identifier too long (max %d characters): %s", MaxIdentifierLength, identifier)
	}

	if !sqlIdentifierRegex.MatchString(identifier) {
		return fmt.Errorf("invalid identifier format: %s", identifier)
	}

	if reservedWords[strings.ToUpper(identifier)] {
		return fmt.Errorf("identifier is a reserved SQL keyword: %s", identifier)
	}

	return nil
}
