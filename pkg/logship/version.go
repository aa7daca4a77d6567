package logship

// Version is reported to the intake in DD-EVP-ORIGIN-VERSION.
const Version = "1.0.0"

// Origin is reported to the intake in DD-EVP-ORIGIN.
const Origin = "logship"
