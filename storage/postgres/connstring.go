package postgres

import (
	"strings"
)

var adoKeywords = map[string]string{
	"host":                      "host",
	"server":                    "host",
	"port":                      "port",
	"database":                  "dbname",
	"username":                  "user",
	"user id":                   "user",
	"userid":                    "user",
	"user":                      "user",
	"password":                  "password",
	"ssl mode":                  "sslmode",
	"sslmode":                   "sslmode",
	"timeout":                   "connect_timeout",
	"application name":          "application_name",
	"search path":               "search_path",
	"target session attributes": "target_session_attrs",
}

// ConnString accepts a database URL, a libpq keyword/value string, or an
// ADO.NET style string such as "Host=db;Database=orleans;Username=u;Password=p",
// and returns a string pgx can parse. Unknown ADO.NET keys are dropped.
func ConnString(s string) string {
	if strings.Contains(s, "://") || !strings.Contains(s, ";") {
		return s
	}

	var parts []string

	for _, pair := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		keyword, ok := adoKeywords[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}

		value = strings.TrimSpace(value)
		if keyword == "sslmode" {
			value = strings.ToLower(value)
		}

		parts = append(parts, keyword+"="+quote(value))
	}

	return strings.Join(parts, " ")
}

func quote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)

	return "'" + value + "'"
}
