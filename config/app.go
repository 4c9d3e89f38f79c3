package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET" default:"local_dev_secret"`
	Env         string `env:"APP_ENV" default:"dev"`

	// RetainTerminalRequests keeps REJECTED/CANCELLED rows as history.
	// When false, those rows are deleted on transition (legacy behavior).
	// RETURNED rows are always retained.
	RetainTerminalRequests bool `env:"RETAIN_TERMINAL_REQUESTS" default:"true"`

	// BlockRequestWhenOutOfStock refuses new issue requests for books with
	// zero available copies instead of queueing them until approval.
	BlockRequestWhenOutOfStock bool `env:"BLOCK_REQUEST_WHEN_OUT_OF_STOCK" default:"false"`
}
