// Command dealerctl runs maintenance tasks against the marketplace
// database: schema migrations, admin bootstrap, store settings and demo data.
package main

import (
    "os"

    "github.com/iliyamo/car-marketplace/internal/logging"
)

func main() {
    log := logging.Setup(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
    if err := newRootCmd(openDB, log).Execute(); err != nil {
        os.Exit(1)
    }
}
