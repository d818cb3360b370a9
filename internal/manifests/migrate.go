package manifests

import (
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// MigrateJob возвращает Job стадии migration (rake db:migrate).
//
// Выполняется после подъёма приложения, но до публикации наружу:
// инстанс не принимает внешний трафик с немигрированной схемой.
func MigrateJob(env *config.Environment) domain.Resource {
	backoffLimit := int32(2)

	job := &batchv1.Job{
		ObjectMeta: objectMeta(MigrateJobName, "migrate"),
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: componentLabels("migrate")},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:    "migrate",
							Image:   env.Images.Mastodon,
							Command: []string{"bundle", "exec", "rake", "db:migrate"},
							EnvFrom: appEnvFrom(),
						},
					},
				},
			},
		},
	}

	return domain.Resource{
		Kind:   domain.KindJob,
		Name:   MigrateJobName,
		Object: job,
		Requires: []domain.Reference{
			{Kind: domain.KindSecret, Name: EnvSecretName},
			{Kind: domain.KindConfigMap, Name: ConfigName},
			{Kind: domain.KindService, Name: PostgresServiceName},
		},
	}
}
