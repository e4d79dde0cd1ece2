package server_test

const readinessSupported = true
