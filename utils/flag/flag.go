/*
flag Package sets up cli flags shared across the binaries

Usage:

	Flags listed in this package are service-agnostic. For service dependent
	flags please define them in their respective package. Parse must be
	called once from main; packages reading the flag vars before Parse see
	their defaults.
*/

package flag

import (
	"flag"
)

const (
	BlogServer = "blog_server"
)

var (
	IsDevelopment bool
	ServiceName   string
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", BlogServer, "name the service reports in its logs")
}

func Parse() {
	flag.Parse()
}
