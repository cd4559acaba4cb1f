// Package command defines the payauth-cli commands on urfave/cli/v2.
//
// Configuration and the logger are set up before every command. The
// token store, the HTTP client, the services and the session store are
// built on first use and shared for the life of the process, so the
// interactive shell bootstraps the session once and reuses it for every
// line it runs.
package command
