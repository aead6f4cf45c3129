package internal

// Version is the translore release printed by --version and sent in the
// User-Agent of outgoing requests.
const Version = "0.3.1"
