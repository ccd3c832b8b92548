package domain

import (
	"fmt"
	"time"
)

type PlaceholderStyle string

const (
	PlaceholderQuestion PlaceholderStyle = "?"
	PlaceholderDollar   PlaceholderStyle = "$"
	PlaceholderAtP      PlaceholderStyle = "@p"
)

// DefaultQueryTimeout matches the connection-level timeout the production
// data source has always been queried with.
const DefaultQueryTimeout = 600 * time.Second

// DataSourceProfile is one section of the data source configuration file.
type DataSourceProfile struct {
	Name        string
	Driver      string
	DSN         string
	Timeout     time.Duration
	Placeholder PlaceholderStyle
	InitSQL     []string
}

func (p DataSourceProfile) String() string {
	return fmt.Sprintf("%s:%s", p.Driver, p.Name)
}

type TLSPolicy string

const (
	TLSOpportunistic TLSPolicy = "opportunistic"
	TLSMandatory     TLSPolicy = "mandatory"
	TLSNone          TLSPolicy = "none"
)

// SMTPSettings describes the outgoing mail relay.
type SMTPSettings struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	TLS      TLSPolicy     `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}
