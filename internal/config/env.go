package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AddrSetter определяет интерфейс для установки адреса из строки.
type AddrSetter interface {
	Set(string) error
}

// EnvServer устанавливает адрес сервера из переменной окружения.
//
// Если переменная окружения с именем envKey присутствует, вызывается метод Set
// с её значением. Ошибка разбора оборачивается с именем переменной.
func EnvServer(addr AddrSetter, envKey string) error {
	if envVal, ok := os.LookupEnv(envKey); ok && envVal != "" {
		if err := addr.Set(envVal); err != nil {
			return fmt.Errorf("invalid %s: %w", envKey, err)
		}
	}
	return nil
}

// EnvInt возвращает значение переменной окружения как int.
//
// Если переменная не задана или пуста, возвращает 0 и nil.
func EnvInt(key string) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

// EnvString возвращает значение переменной окружения или пустую строку.
func EnvString(key string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return ""
}

// EnvBool возвращает значение булевой переменной окружения.
//
// Второй результат равен false, если переменная не задана.
func EnvBool(key string) (bool, bool, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return false, false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, true, nil
}

// EnvDuration возвращает длительность из переменной окружения.
//
// Принимает как формат "5s", так и целое число секунд. Если переменная
// не задана, возвращает 0 и nil.
func EnvDuration(key string) (time.Duration, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
