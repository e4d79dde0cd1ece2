package echo_test

func supportsReadiness() bool { return true }
