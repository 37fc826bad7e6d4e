package main

import "chat-backend/config"

func main() {
	config.RunServer()
}
