package main

func main() {
	// startWithDig() is the DI container variant
	startManual()
}
