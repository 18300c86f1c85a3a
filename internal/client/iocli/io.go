package iocli

//go:generate moq -out io_mock.go . IO

// IO - ввод и вывод интерактивного клиента
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	Write(p []byte) (n int, err error)
	// Width возвращает ширину терминала в символах
	Width() int
}
