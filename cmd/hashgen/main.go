package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Утилита генерации bcrypt-хеша пароля для ручного заведения пользователей.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: hashgen <password>")
	}
	password := os.Args[1]

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Ошибка хеширования пароля: %v", err)
	}

	fmt.Println(string(hashedPassword))
}
