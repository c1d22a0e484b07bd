package pkg

import (
	"log"
	"os"
	"time"
)

// panic - детектит.
func FuncWithPanic() {
	panic("ошибка") // want "use of builtin panic is discouraged"
}

// log.Fatal - детектит.
func FuncWithFatal() {
	log.Fatalf("вне %s", "main.main") // want "call to log.Fatal or os.Exit outside main.main"
}

// os.Exit - детектит.
func FuncWithExit() {
	os.Exit(1) // want "call to log.Fatal or os.Exit outside main.main"
}

// time.Sleep - детектит.
func FuncWithSleep() {
	time.Sleep(time.Second) // want "time.Sleep outside tests; use a ticker or context"
}

// Разрешённые вызовы.
func FuncAllowed() {
	log.Println("ОК")
	_ = time.Now()
}
