package manifests

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// AppConfig возвращает ConfigMap с несекретной конфигурацией приложения.
func AppConfig(env *config.Environment) domain.Resource {
	data := map[string]string{
		"LOCAL_DOMAIN": env.Domain,
		"RAILS_ENV":    "production",
		"NODE_ENV":     "production",

		"DB_HOST": PostgresServiceName,
		"DB_PORT": fmt.Sprintf("%d", PostgresPort),
		"DB_USER": postgresUser,
		"DB_NAME": postgresDatabase,

		"REDIS_HOST": RedisServiceName,
		"REDIS_PORT": fmt.Sprintf("%d", RedisPort),

		"ES_ENABLED": "false",
		"S3_ENABLED": "false",

		"RAILS_SERVE_STATIC_FILES": "true",
	}

	if env.SMTP.Server != "" {
		data["SMTP_SERVER"] = env.SMTP.Server
		data["SMTP_PORT"] = fmt.Sprintf("%d", env.SMTP.Port)
		data["SMTP_FROM_ADDRESS"] = env.SMTP.From
	}

	cm := &corev1.ConfigMap{
		ObjectMeta: objectMeta(ConfigName, "config"),
		Data:       data,
	}

	return domain.Resource{Kind: domain.KindConfigMap, Name: ConfigName, Object: cm}
}

// EnvSecret возвращает Secret со сгенерированными credentials.
//
// Данные заполняются оркестратором из SecretMaterial непосредственно
// перед apply; билдер отдаёт пустой скелет.
func EnvSecret() domain.Resource {
	secret := &corev1.Secret{
		ObjectMeta: objectMeta(EnvSecretName, "config"),
		Type:       corev1.SecretTypeOpaque,
	}

	return domain.Resource{Kind: domain.KindSecret, Name: EnvSecretName, Object: secret}
}

// FillEnvSecret записывает значения SecretMaterial в Secret ресурса.
func FillEnvSecret(res *domain.Resource, material *domain.SecretMaterial) error {
	secret, ok := res.Object.(*corev1.Secret)
	if !ok {
		return fmt.Errorf("resource %s is not a Secret", res.Name)
	}
	secret.StringData = material.Values()
	return nil
}
