package server_test

const readinessSupported = false
