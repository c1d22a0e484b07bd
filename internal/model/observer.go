package models

// AttackObserver получает уведомления о новых сохранённых атаках.
type AttackObserver interface {
	OnAttack(msg AttackMessage) error
}

// AttackSubject рассылает уведомления подписанным наблюдателям.
type AttackSubject interface {
	Attach(observer AttackObserver)
	Detach(observer AttackObserver)
	Notify(msg AttackMessage)
}
