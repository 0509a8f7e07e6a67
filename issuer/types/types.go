package types

import (
	"math/big"
	"time"
)

// Issuance result of a single leaf certificate issuance
type Issuance struct {
	ID           string
	SerialNumber *big.Int
	CommonName   string

	KeyPEM  []byte // new private key as PEM
	CsrPEM  []byte // certificate signing request as PEM
	CertPEM []byte // signed certificate as PEM

	NotBefore time.Time
	NotAfter  time.Time
	Created   time.Time
}

// Record persisted issuance record, one row per issued certificate
type Record struct {
	ID         string
	CAKeyID    string // issuing CA subject key id, hex
	Serial     string // certificate serial, hex
	CommonName string
	Status     Status
	NotBefore  time.Time
	NotAfter   time.Time
	Created    time.Time
}

type Status string

const (
	StatusIssued  Status = "issued"
	StatusRevoked Status = "revoked"
)

func (s Status) String() string { return string(s) }
