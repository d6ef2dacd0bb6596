package domain

import "errors"

var (
	ErrIdentityNotLinked = errors.New("chat user is not linked")
	ErrCatalogUserTaken  = errors.New("catalog user already linked in this guild")
	ErrInvalidMediaType  = errors.New("invalid media type")
	ErrInvalidSeason     = errors.New("invalid season")
)
