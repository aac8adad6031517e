package models

import "time"

// RefreshSession is one row per issued refresh token. The raw token is never
// stored, only its hash. A refresh token is usable only while RevokedAt is
// null.
type RefreshSession struct {
	ID        int64
	UserID    int64
	TokenHash string
	SessionID string
	UAHash    string
	FPHash    string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// ClientBinding is the pair of hashes derived from the current request that
// tie a token to the device/browser context it was issued to. FPHash is empty
// when the request carried no fingerprint anywhere.
type ClientBinding struct {
	UAHash string
	FPHash string
}

type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	SessionID    string `json:"sid"`
}
