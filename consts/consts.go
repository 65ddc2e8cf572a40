package consts

import "time"

const APP_NAME = "plumcave"

var LOGS_FILE_NAME = "logs.json"
var LOGS_MAX_FILE_SIZE int64 = 15 * 1024 * 1024 // bytes
var LOGS_MAX_TIME int64 = 2419200               // seconds, 28 days

// Key material sizes, in bytes.
const (
	MASTER_KEY_SIZE      = 272
	RANDOM_FILE_KEY_MIN  = 302
	RANDOM_FILE_KEY_SIZE = 656
	SALT_SIZE            = 48
	METADATA_KEY_SIZE    = 672
	FILE_KEY_SIZE        = 416
)

// Login derivation output is 336 bytes, the first 64 are dropped.
const (
	LOGIN_DERIVED_SIZE  = 336
	LOGIN_DERIVED_SKIP  = 64
	LOGIN_ITER_FLOOR    = 1100
	LOGIN_ITER_SPAN     = 301
	KDF_MEMORY_KIB      = 512
	KDF_THREADS         = 1
	WRAP_ITER_DIVISOR   = 3
	BACKUP_ID_LENGTH    = 10
	BACKUP_ID_ALPHABET  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	DEFAULT_CHUNK_SIZE  = 16 * 1024
	DEFAULT_PARALLELISM = 1
)

const (
	ENTROPY_POOL_SIZE     = 4096
	ENTROPY_POINTER_BYTES = 224
	ENTROPY_POINTER_STEP  = 1.1
	ENTROPY_TIMER_STEP    = 1.9
	ENTROPY_TICK          = 400 * time.Millisecond
)
