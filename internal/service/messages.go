package service

// Тексты ответов пользователю. Собраны в одном месте, чтобы фронт и бэк
// не расходились в формулировках.

// Ошибки по email
const (
	MsgEmailNotFound      = "Пользователь с таким email не найден."
	MsgEmailAlreadyExists = "Пользователь с таким email уже зарегистрирован."
	MsgEmailTakenByOther  = "Этот email уже используется другим пользователем."
	MsgEmailNotDetermined = "Не удалось определить email для отправки кода."
)

// Сообщения flow с кодами на email
const (
	MsgSessionCodeExpired     = "Сессия с кодом недействительна. Запросите код ещё раз."
	MsgSessionRecoveryExpired = "Сессия восстановления недействительна. Запросите код ещё раз."
	MsgSessionEmailExpired    = "Сессия смены email недействительна. Запросите код ещё раз."
	MsgSessionConfirmExpired  = "Сессия подтверждения истекла. Запросите код ещё раз."

	MsgCodeExpired      = "Срок действия кода истёк. Запросите новый код."
	MsgCodeMismatch     = "Код не совпадает."
	MsgCooldownSeconds  = "Слишком частые запросы кода. Попробуйте через %d секунд."
	MsgUnknownSend      = "Неизвестный сценарий отправки кода."
	MsgUnknownConfirm   = "Неизвестный сценарий подтверждения."
	MsgConfirmNotNeeded = "Для данного сценария отдельный confirm-шаг не требуется."
)

// Ошибки и успехи по паролю
const (
	MsgPasswordsMismatch      = "Пароли не совпадают."
	MsgCurrentPasswordWrong   = "Неверный текущий пароль."
	MsgEnterCurrentPassword   = "Введите текущий пароль."
	MsgConfirmNewPassword     = "Введите и подтвердите новый пароль."
	MsgResetUserNotFound      = "Не удалось найти пользователя для восстановления пароля."
	MsgPasswordChangedProfile = "Пароль успешно изменён."
	MsgPasswordChangedReset   = "Пароль успешно изменён. Введите новый пароль и авторизуйтесь."
)

// Профиль
const (
	MsgUsernameEmpty   = "Имя пользователя не может быть пустым."
	MsgUsernameChanged = "Имя пользователя успешно изменено."
	MsgEmailChanged    = "Email успешно изменён."
)

// Авторизация
const (
	MsgInvalidCredentials = "Неверный email или пароль."
	MsgConfirmEmailFirst  = "Сначала подтвердите email через код."
	MsgNeedAuth           = "Требуется авторизация."
)

// Кабинеты WB
const (
	MsgCabinetWithoutID       = "Не указан id кабинета."
	MsgCabinetIncorrectID     = "Некорректный id кабинета."
	MsgCabinetFillAPIField    = "Заполните API-ключ и его имя."
	MsgCabinetHaveAPIKeyName  = "Кабинет с таким именем ключа уже есть."
	MsgCabinetHaveAPIKey      = "Этот API-ключ уже добавлен."
	MsgCabinetAPIKeyDuplicate = "Этот API-ключ уже привязан к другому кабинету."
	MsgCabinetKeyNameRequired = "Имя API-ключа не может быть пустым."
	MsgCabinetNameRequired    = "Название кабинета не может быть пустым."
	MsgCabinetDateRequired    = "Дата создания кабинета не может быть пустой."
	MsgCabinetDateInvalid     = "Некорректная дата создания кабинета."
	MsgCabinetAPIActive       = "API-ключ действителен, данные совпадают."
	MsgCabinetAPIActiveDiff   = "API-ключ действителен, но данные кабинета изменились."
	MsgCabinetSynced          = "Данные кабинета обновлены из WB."
	MsgCabinetUpdated         = "Кабинет обновлён."
)
