//go:build ignore

// generate_hash.go — утилита для генерации Argon2id хеша пароля админки.
// Запуск: go run scripts/generate_hash.go ваш_пароль
//
// Результат вставьте в .env как ADMIN_PASSWORD_HASH.
package main

import (
	"fmt"
	"os"

	"serotonyl.ru/herd-bot/internal/features/admin"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}

	hash, err := admin.HashPassword(os.Args[1])
	if err != nil {
		fmt.Printf("Ошибка: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Argon2id хеш пароля:")
	fmt.Println(hash)
	fmt.Println()
	fmt.Println("Добавьте в .env:")
	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
}
