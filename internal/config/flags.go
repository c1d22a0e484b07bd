package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort - порт HTTP-сервера, если в адресе он не указан.
const DefaultPort = 8080

// NetAddress - адрес HTTP-сервера панели.
//
// Реализует flag.Value, поэтому один и тот же разбор используется
// для флага -a, поля address в JSON и переменной ADDRESS.
type NetAddress struct {
	Host string
	Port int
}

// String возвращает адрес в виде, пригодном для net.Listen.
// IPv6-хост заключается в квадратные скобки.
func (a NetAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set разбирает "host:port", ":port", "[v6]:port" или просто "host".
// Без порта используется DefaultPort. Порт должен лежать в 0..65535.
func (a *NetAddress) Set(s string) error {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ":") {
		a.Host, a.Port = s, DefaultPort
		return nil
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	a.Host, a.Port = host, port
	return nil
}

// ParseAddressFlag регистрирует флаг -a в наборе fs.
//
// Возвращает указатель на NetAddress со значением localhost:DefaultPort.
func ParseAddressFlag(fs *flag.FlagSet) *NetAddress {
	addr := &NetAddress{Host: "localhost", Port: DefaultPort}
	fs.Var(addr, FlagAddress, "Net address host:port")
	return addr
}
