package constant

import "os"

// <NodeDir>/                    (e.g., /home/bridge/.pgateway)
// └── config/
//	└── pgateway_config.json
// └── databases/
//	└── journal.db
// └── keys/
//	└── fee_payer.json

const (
	NodeDir = ".pgateway"

	ConfigSubdir   = "config"
	ConfigFileName = "pgateway_config.json"

	DatabasesSubdir = "databases"
	JournalDBName   = "journal.db"

	KeysSubdir = "keys"
)

var DefaultNodeHome = os.ExpandEnv("$HOME/") + NodeDir
