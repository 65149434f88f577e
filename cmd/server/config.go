package main

import "time"

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	AttachmentDir     string        `env:"ATTACHMENT_DIR,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	BannedWords       []string      `env:"BANNED_WORDS"`
	MaskCharacter     string        `env:"MASK_CHARACTER,default=*"`
}
